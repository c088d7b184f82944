// Package auth builds authorized HTTP clients for the Google APIs.
//
// With both a client secrets file and a credentials file configured, the
// user token stored in the credentials file is used and refreshed tokens are
// written back to it. When no token is stored yet, the consent flow runs
// through a Prompter and the resulting token is saved with 0600
// permissions. Without those files, application default credentials are used.
package auth
