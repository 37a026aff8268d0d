package colors

import "github.com/fatih/color"

var (
	Red    = color.New(color.FgRed).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	Blue   = color.New(color.FgBlue).SprintFunc()
	Bold   = color.New(color.Bold).SprintFunc()
)

// Prefix returns a "[name] " log prefix in the given color.
func Prefix(colorize func(a ...interface{}) string, name string) string {
	return colorize("[" + name + "] ")
}
