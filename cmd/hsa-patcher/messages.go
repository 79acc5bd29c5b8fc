package main

import (
	"errors"
	"path/filepath"

	"hsa-patcher/internal/config"
	"hsa-patcher/internal/extract"
	"hsa-patcher/internal/fetch"
	"hsa-patcher/internal/pipeline"
	"hsa-patcher/internal/readme"
)

type sayer interface {
	Say(format string, args ...any)
}

const (
	causePrivileges   = "The patcher may not have privileges to modify files in the Hearthstone installation folder. Perhaps run it as an administrator."
	causeOtherProgram = "Unlikely, but another program could be trying to modify the Hearthstone installation folder."
)

// announce prints progress for the stages that take a while.
func announce(p sayer, s pipeline.Stage) {
	switch s {
	case pipeline.StageLocate:
		p.Say("Looking for your Hearthstone installation, please wait...")
	case pipeline.StageDownload:
		p.Say("Downloading patch, please wait...")
	case pipeline.StageMerge:
		p.Say("Patching Hearthstone, please wait...")
	}
}

// report prints the result of a run once: warnings, then either the failure
// with its likely causes or the success messages.
func report(p sayer, out pipeline.Outcome, cfg config.Config) {
	mergeFailed := false
	for _, w := range out.Warnings {
		if errors.Is(w, pipeline.ErrMerge) {
			mergeFailed = true
			p.Say("Error applying patch: %v", errors.Unwrap(w))
			continue
		}
		p.Say("Warning: could not remember the Hearthstone folder for next time: %v", w)
	}

	if out.Err != nil {
		reportFailure(p, out.Err, cfg)
		return
	}

	if !mergeFailed {
		p.Say("Successfully patched!")
	}
	switch out.Readme {
	case readme.Moved:
		p.Say("Check your desktop for the patch's readme.")
		p.Say("It is called %s", filepath.Base(out.ReadmePath))
	case readme.Removed:
		p.Say("Okay, skipping readme.")
	}
}

func reportFailure(p sayer, err error, cfg config.Config) {
	cause := errors.Unwrap(err)
	switch pipeline.StageOf(err) {
	case pipeline.StageLocate:
		p.Say("Locate Error: Could not find your Hearthstone installation.")
		p.Say("Here are some potential causes:")
		p.Say("1. Hearthstone may not be installed on this computer.")
		p.Say("2. Hearthstone may be installed in a folder the patcher could not read.")
		p.Say("You can point the patcher at it with --install-dir, or set the %s environment variable to the Hearthstone folder.", cfg.EnvKey)
		p.Say("Error locating Hearthstone: %v", cause)

	case pipeline.StageDownload:
		p.Say("Patch Download Error: could not download patch.")
		switch fetch.Classify(cause) {
		case fetch.CauseNetwork:
			p.Say("The most likely cause:")
			p.Say("There may be something in your network that is interfering with the download.")
		case fetch.CauseRemote:
			p.Say("The most likely cause:")
			p.Say("The HearthstoneAccess site could currently be down.")
		default:
			p.Say("Here are some potential causes:")
			p.Say("1. There may be something in your network that is interfering with the download.")
			p.Say("2. The HearthstoneAccess site could currently be down.")
		}
		p.Say("Error downloading patch: %v", cause)

	case pipeline.StageExtract:
		p.Say("Unzip Patch Error: Could not patch your game.")
		if errors.Is(cause, extract.ErrInvalidArchive) {
			p.Say("The downloaded file is not a valid patch archive. Try running the patcher again.")
		} else {
			p.Say("Here are some potential causes:")
			p.Say("1. Make sure Hearthstone is not running while attempting to use the patcher.")
			p.Say("2. %s", causePrivileges)
			p.Say("3. Unlikely, but you may not have enough space on your disk drive.")
		}
		p.Say("Error unzipping patch: %v", cause)

	case pipeline.StageMerge:
		p.Say("Patch Error: Could not apply the patch to your game.")
		p.Say("Here are some potential causes:")
		p.Say("1. Make sure Hearthstone is not running while attempting to use the patcher.")
		p.Say("2. %s", causePrivileges)
		p.Say("Error applying patch: %v", cause)

	case pipeline.StageCleanup:
		p.Say("Cleanup Patch Error: Could not remove leftover patch files.")
		p.Say("Here are some potential causes:")
		p.Say("1. %s", causePrivileges)
		p.Say("2. %s", causeOtherProgram)
		p.Say("Error during cleanup: %v", cause)

	case pipeline.StageReadme:
		p.Say("Make Readme Available Error: Could not move the patch readme to your desktop.")
		p.Say("Here are some potential causes:")
		p.Say("1. %s", causePrivileges)
		p.Say("2. %s", causeOtherProgram)
		p.Say("It should still be available in the Hearthstone installation directory.")
		p.Say("Error moving patch readme: %v", cause)

	default:
		p.Say("Error: %v", err)
	}
}
