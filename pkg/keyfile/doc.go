// Package keyfile reads PEM key files from disk and watches them for
// rotation.
package keyfile
