/*
Copyright © 2021 Edmond Cotterell

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Daskott/sos/colors"
	devConfig "github.com/Daskott/sos/dev/config"
	"github.com/Daskott/sos/shared"
	"github.com/Daskott/sos/version"
	"github.com/go-playground/validator"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	isDevEnv  bool
	isVerbose bool

	warningLabel = colors.Yellow("Warning:")
)

// Execute builds the root command and runs it. This is called by main.main().
// An interrupt cancels a running alert before its next step.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cobra.CheckErr(createRootCmd().ExecuteContext(ctx))
}

func createRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use: "sos",
		Short: `sos sends a distress signal to your emergency contacts.

One command texts every saved contact, with your current location when it is
available, and then calls your primary contact.`,
		Version:       fmt.Sprintf("v%s", version.Version),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sos.yaml)")
	cmd.PersistentFlags().BoolVarP(&isDevEnv, "dev", "", false, "run in development mode")
	cmd.PersistentFlags().BoolVarP(&isVerbose, "verbose", "v", false, "log every dispatch step")

	cmd.AddCommand(
		createContactsCmd(),
		createAlertCmd(),
		createPermissionsCmd(),
		createPassphraseCmd(),
		createServerCmd(),
	)

	return cmd
}

// initConfig reads in config file and ENV variables if set.
func initConfig() (*viper.Viper, error) {
	config := viper.New()

	if cfgFile != "" {
		// Use config file from the flag.
		config.SetConfigFile(cfgFile)
	} else {
		configName, configDir, err := defaultCfgNameAndDir()
		if err != nil {
			return nil, err
		}

		// If config file is not found, create one using the default content
		configFilePath := filepath.Join(configDir, configName)
		if _, err := os.Stat(configFilePath); os.IsNotExist(err) {
			err = ioutil.WriteFile(configFilePath, []byte(defaultConfigValue()), 0600)
			if err != nil {
				return nil, err
			}
		}

		config.SetConfigFile(configFilePath)
		config.SetConfigType("yaml")
	}

	config.SetDefault("dispatch.promptCallPermission", true)
	config.SetDefault("dispatch.locationMaxStaleness", shared.DEFAULT_LOCATION_STALENESS)

	// Twilio secrets can live in the environment instead of the config file.
	// FYI: The env var overrides whatever is in the config file
	config.BindEnv("twilio.accountSid", "TWILIO_ACCOUNT_SID")
	config.BindEnv("twilio.authToken", "TWILIO_AUTH_TOKEN")

	config.AutomaticEnv() // read in environment variables that match

	if err := config.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	return config, nil
}

// loadConfig decodes and validates the config, filling in defaults.
func loadConfig() (shared.Config, error) {
	cfg := shared.Config{}

	config, err := initConfig()
	if err != nil {
		return cfg, err
	}

	if err := config.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unable to decode %s: %v", config.ConfigFileUsed(), err)
	}

	if cfg.Store.Dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return cfg, err
		}
		cfg.Store.Dir = filepath.Join(homeDir, ".sos")
	}
	cfg.ApplyDefaults()

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, formattedError("invalid config in %s:\n%v", config.ConfigFileUsed(), err)
	}

	return cfg, nil
}

func defaultCfgNameAndDir() (configName string, configDir string, err error) {
	if isDevEnv {
		configDir, err = os.Getwd()
		return ".sos.dev.yaml", configDir, err
	}

	// Use home directory for production
	configDir, err = os.UserHomeDir()
	return ".sos.yaml", configDir, err
}

// defaultConfigValue returns the default content for .sos.yaml
func defaultConfigValue() string {
	if isDevEnv {
		return devConfig.SOS_DEV_YML
	}

	return `# Directory holding the sos database (default is $HOME/.sos)
store:
  dir:

dispatch:
  # always-call: call your primary contact after every alert
  # call-on-sms-failure: call only when no SMS could be delivered
  callPolicy: always-call
  requireCallConfirmation: false
  promptCallPermission: true
  locationTimeout: 5s
  locationMaxStaleness: 10s

# Where your current location comes from: static, http or none
# e.g.
# location:
#   source: http
#   http:
#     url: http://ip-api.com/json
#
location:
  source: none

# The account SID and auth token can also be set with the
# TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN env vars.
twilio:
  accountSid:
  authToken:
  messagingServiceSid:
  fromNumber:
  defaultCountryCode: "1"

server:
  port: 3000
  tokenTTL: 24h
  privateKeyPem:
`
}

func formattedError(format string, a ...interface{}) error {
	return fmt.Errorf(colors.Red(format), a...)
}
