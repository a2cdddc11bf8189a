package main

import (
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/dbferry/dbferry/pkg/buildinfo"
	"github.com/dbferry/dbferry/pkg/transfer"
)

// Populated via -ldflags by the release pipeline.
var (
	version string
	commit  string
	date    string
)

var cli struct {
	Transfer transfer.Transfer `cmd:"" help:"Transfer table data between databases or to a file."`
	Version  kong.VersionFlag  `help:"Show version information and exit."`
}

func main() {
	buildinfo.Set(version, commit, date)
	info := buildinfo.Get()
	ctx := kong.Parse(&cli,
		kong.Name("dbferry"),
		kong.Description("dbferry: move table data between MySQL and PostgreSQL"),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("dbferry %s (%s, built %s)", info.Version, info.Commit, info.Date)},
	)
	ctx.FatalIfErrorf(ctx.Run())
}
