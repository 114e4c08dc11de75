package syncsecret

import (
	"encoding/json"
	"testing"

	"github.com/tj/assert"

	"github.com/subscriberhub/sfmc-sync/sfmc"
	"github.com/subscriberhub/sfmc-sync/snowflake"
)

func TestCredentials(t *testing.T) {
	var creds Credentials
	err := json.Unmarshal([]byte(`{
		"SNOWFLAKE_PASSWORD": "from-secret",
		"SFMC_CLIENT_SECRET": "shh",
		"SFMC_SUBDOMAIN": ""
	}`), &creds)
	assert.NoError(t, err)

	wh := snowflake.Config{Account: "acct", User: "loader", Password: "from-env"}
	mc := sfmc.Config{Subdomain: "mc123", ClientID: "id", ClientSecret: "env-secret"}
	creds.Apply(&wh, &mc)

	assert.Equal(t, snowflake.Config{Account: "acct", User: "loader", Password: "from-secret"}, wh)
	assert.Equal(t, sfmc.Config{Subdomain: "mc123", ClientID: "id", ClientSecret: "shh"}, mc)
}
