// Package config resolves the Cattle API endpoint and API keys.
//
// The rancher CLI config file (~/.rancher/cli.json) wins; when it is missing
// or unreadable the CATTLE_URL, CATTLE_ACCESS_KEY and CATTLE_SECRET_KEY
// environment variables are used instead. The resulting Config is passed
// explicitly to client.New so several environments can be addressed from
// one process.
package config
