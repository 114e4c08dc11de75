package snowflake

import (
	synccli "github.com/subscriberhub/sfmc-sync/sync-cli"
	"github.com/urfave/cli/v2"
)

var SnowflakeOpts Config

var AccountFlag = synccli.StringFlag("snowflake-account", "Snowflake account identifier", &SnowflakeOpts.Account)
var UsernameFlag = synccli.StringFlag("snowflake-username", "Snowflake user", &SnowflakeOpts.User)
var PasswordFlag = synccli.StringFlag("snowflake-password", "Snowflake password", &SnowflakeOpts.Password)
var WarehouseFlag = synccli.StringFlag("snowflake-warehouse", "Snowflake virtual warehouse", &SnowflakeOpts.Warehouse)
var DatabaseFlag = synccli.StringFlag("snowflake-database", "Database holding the SUBSCRIBERS table", &SnowflakeOpts.Database)
var SchemaFlag = synccli.StringFlag("snowflake-schema", "Schema holding the SUBSCRIBERS table", &SnowflakeOpts.Schema)

var SnowflakeFlags = []cli.Flag{
	AccountFlag,
	UsernameFlag,
	PasswordFlag,
	WarehouseFlag,
	DatabaseFlag,
	SchemaFlag,
}
