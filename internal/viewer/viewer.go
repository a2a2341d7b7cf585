// Package viewer opens finished reports with the desktop's default
// application for the file type.
package viewer

import "github.com/pkg/browser"

type Launcher interface {
	Launch(path string) error
}

// Desktop hands the file to the platform opener. The opener's output goes to
// browser.Stdout and browser.Stderr.
type Desktop struct{}

func (Desktop) Launch(path string) error {
	return browser.OpenFile(path)
}

// Nop is used when opening reports is turned off.
type Nop struct{}

func (Nop) Launch(string) error {
	return nil
}
