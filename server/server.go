// Package server exposes the alert trigger and contact setup over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"
	"time"

	"github.com/Daskott/sos/contacts"
	"github.com/Daskott/sos/dispatch"
	"github.com/Daskott/sos/metrics"
	"github.com/Daskott/sos/permissions"
	"github.com/Daskott/sos/server/auth/key"
	"github.com/Daskott/sos/shared"
	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies are the components the API serves.
type Dependencies struct {
	DB          *gorm.DB
	Contacts    *contacts.Store
	Permissions *permissions.Resolver
	Dispatcher  *dispatch.Dispatcher
	Collector   *metrics.Collector
}

type Server struct {
	Dependencies

	config   shared.ServerConfig
	keyPair  *key.KeyPair
	validate *validator.Validate
	logg     *zap.SugaredLogger
	now      func() time.Time
}

// New returns a Server signing tokens with 'config.PrivateKeyPem', or with a
// freshly generated key when none is configured.
func New(config shared.ServerConfig, deps Dependencies, logg *zap.SugaredLogger) (*Server, error) {
	var (
		keyPair *key.KeyPair
		err     error
	)

	if config.PrivateKeyPem != "" {
		keyPair, err = key.NewKeyPairFromRSAPrivateKeyPem(config.PrivateKeyPem)
	} else {
		logg.Warn("no server.privateKeyPem configured, tokens will not survive a restart")
		keyPair, err = key.GenerateKeyPair()
	}
	if err != nil {
		return nil, err
	}

	if config.TokenTTL == 0 {
		config.TokenTTL = shared.DEFAULT_TOKEN_TTL
	}

	return &Server{
		Dependencies: deps,
		config:       config,
		keyPair:      keyPair,
		validate:     newValidator(),
		logg:         logg,
		now:          time.Now,
	}, nil
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.loggingMiddleware)

	router.HandleFunc("/health", s.health).Methods("GET")
	router.HandleFunc("/jwks", s.jwks).Methods("GET")
	router.HandleFunc("/login", s.logIn).Methods("POST")
	if s.Collector != nil {
		router.Handle("/metrics", s.Collector.Handler()).Methods("GET")
	}

	protected := router.NewRoute().Subrouter()
	protected.Use(s.protectedRouteMiddleware)

	protected.HandleFunc("/contact", s.findContact).Methods("GET")
	protected.HandleFunc("/contact", s.updateContact).Methods("PUT")
	protected.HandleFunc("/contact", s.deleteContact).Methods("DELETE")
	protected.HandleFunc("/permissions", s.findPermissions).Methods("GET")
	protected.HandleFunc("/permissions/{kind}", s.updatePermission).Methods("PUT")
	protected.HandleFunc("/alerts", s.createAlert).Methods("POST")

	return router
}

// Start serves the API until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%v", s.config.Port),
		Handler: s.Router(),
	}

	go s.serve(server)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	s.cleanup(server)
}

func (s *Server) serve(server *http.Server) {
	s.logg.Infof("sos server is listening on port:%v", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logg.Fatal(err)
	}
}

func (s *Server) cleanup(server *http.Server) {
	ctxShutDown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutDown); err != nil {
		s.logg.Fatalf("sos server shutdown failed:%+s", err)
	}

	s.logg.Infof("sos server stopped properly")
}

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	})

	return validate
}
