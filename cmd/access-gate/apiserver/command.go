package apiserver

import (
	"github.com/spf13/cobra"

	"github.com/openkcm/access-gate/internal/business"
	"github.com/openkcm/access-gate/internal/cmdutils"
)

func Cmd(buildInfo string) *cobra.Command {
	return cmdutils.CobraCommand(
		"api-server",
		"Access Gate API server",
		"Access Gate API server serves the login routes, the protected pages and the static assets",
		buildInfo,
		cmdutils.RunAsService,
		business.Main,
	)
}
