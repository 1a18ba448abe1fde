// Package google acquires OAuth2 credentials for the Google APIs servar proxies.
//
// Each provider (mail, storage, courses) has its own token file holding an
// authorized-user JSON document. When the file is missing, Acquire runs an
// installed-app consent flow against a callback listener on 127.0.0.1 and
// persists the resulting token. Refreshed access tokens are written back to
// the same file.
package google
