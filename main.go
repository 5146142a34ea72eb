package main

import (
	"runtime/debug"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/canto/cmd/play"
	"github.com/gigurra/canto/cmd/player"
	"github.com/gigurra/canto/cmd/playlists"
	"github.com/gigurra/canto/cmd/scan"
	"github.com/spf13/cobra"
)

func main() {
	boa.CmdT[boa.NoParams]{
		Use:     "canto",
		Short:   "Music in the terminal",
		Version: appVersion(),
		SubCmds: []*cobra.Command{
			player.Cmd(),
			play.Cmd(),
			scan.Cmd(),
			playlists.Cmd(),
		},
	}.Run()
}

func appVersion() string {
	bi, hasBuilInfo := debug.ReadBuildInfo()
	if !hasBuilInfo {
		return "unknown-(no build info)"
	}

	versionString := bi.Main.Version
	if versionString == "" {
		versionString = "unknown-(no version)"
	}

	return versionString
}
