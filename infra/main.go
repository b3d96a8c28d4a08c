package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/GregMSThompson/finance-dashboard/infra/cloudrun"
	"github.com/GregMSThompson/finance-dashboard/infra/docker"
	"github.com/GregMSThompson/finance-dashboard/infra/identity"
	"github.com/GregMSThompson/finance-dashboard/infra/provider"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		// set default provider with the correct project
		prov, err := provider.SetupDefaultProvider(ctx)
		if err != nil {
			return err
		}

		// identity platform issues the ID tokens the gateway verifies
		ident, err := identity.SetupIdentity(ctx, prov)
		if err != nil {
			return err
		}

		// create docker repo
		repo, err := docker.CreateCloudrunRepo(ctx, prov)
		if err != nil {
			return err
		}

		_, err = cloudrun.SetupCloudRun(ctx, prov, ident, repo)
		if err != nil {
			return err
		}

		return nil
	})
}
