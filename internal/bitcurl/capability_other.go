//go:build !amd64

package bitcurl

// Available is always false off amd64: there is no AVX2 to report on.
var Available = false
