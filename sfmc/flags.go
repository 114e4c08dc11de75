package sfmc

import (
	synccli "github.com/subscriberhub/sfmc-sync/sync-cli"
	"github.com/urfave/cli/v2"
)

var SFMCOpts Config

var SubdomainFlag = synccli.StringFlag("sfmc-subdomain", "Marketing cloud tenant subdomain", &SFMCOpts.Subdomain)
var ClientIDFlag = synccli.StringFlag("sfmc-client-id", "Installed package client id", &SFMCOpts.ClientID)
var ClientSecretFlag = synccli.StringFlag("sfmc-client-secret", "Installed package client secret", &SFMCOpts.ClientSecret)
var ExternalKeyFlag = synccli.StringFlag("sfmc-de-external-key", "External key of the target data extension", &SFMCOpts.ExternalKey)

var SFMCFlags = []cli.Flag{
	SubdomainFlag,
	ClientIDFlag,
	ClientSecretFlag,
	ExternalKeyFlag,
}
