//go:build windows

package console

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32             = windows.NewLazySystemDLL("kernel32.dll")
	procSetConsoleTitleW = kernel32.NewProc("SetConsoleTitleW")
)

// SetTitle sets the console window title.
func SetTitle(title string) error {
	if err := procSetConsoleTitleW.Find(); err != nil {
		return err
	}
	p, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return err
	}
	// Non-zero means success; last-error is only meaningful on failure.
	r1, _, callErr := procSetConsoleTitleW.Call(uintptr(unsafe.Pointer(p)))
	if r1 == 0 {
		return fmt.Errorf("SetConsoleTitleW: %w", callErr)
	}
	return nil
}
