package root

import (
	"github.com/zenGate-Global/palmyra-org-admin/apps/cli/cmd/auth"
	"github.com/zenGate-Global/palmyra-org-admin/apps/cli/cmd/bootstrap"
	"github.com/zenGate-Global/palmyra-org-admin/apps/cli/cmd/cmdutil"
	"github.com/zenGate-Global/palmyra-org-admin/apps/cli/cmd/org"
)

var opts = cmdutil.DefaultOptions()

func init() {
	cmdutil.BindPersistentFlags(Root(), opts)

	Root().AddCommand(auth.Command(opts))
	Root().AddCommand(bootstrap.Command(opts))
	Root().AddCommand(org.Command(opts))
}
