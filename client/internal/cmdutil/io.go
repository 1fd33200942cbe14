package cmdutil

import (
	"context"
	"fmt"
	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/prhdev222/med-file-case/internal/misc"
	"os"
	"os/signal"
	"time"
)

var (
	loadingSpinner = spinner.New(spinner.CharSets[14], time.Millisecond*100)
)

func PrintE(message string) {
	println()
	color.Red(message)
}

func Print(message string) {
	_, _ = fmt.Fprintln(os.Stdout, message)
}

func PrintS(message string) {
	println()
	color.Green(message)
}

func PrintW(message string) {
	println()
	color.Yellow(message)
}

func StartLoading(message string) {
	loadingSpinner.Prefix = message + " "
	loadingSpinner.Start()
}

func StopLoading() {
	loadingSpinner.Stop()
}

// Confirm asks a yes/no question; anything but yes is a no.
func Confirm(label string) bool {
	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	result, err := p.Run()
	if err != nil {
		return false
	}
	return misc.StrContains(result, []string{"Yes", "yes", "y", "Y"})
}

// Context is cancelled on interrupt or after timeout, whichever comes first.
func Context(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
