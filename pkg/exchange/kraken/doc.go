// Package kraken implements the Kraken REST wire protocol.
//
// The package includes:
//   - Protocol: endpoint paths, request signing, nonces and response envelope decoding
//   - Normalizer: numeric coercion of loosely typed responses and conversion of
//     raw Kraken payloads into the canonical types of package core
//
// Example usage:
//
//	nonce := kraken.NewNonceSource().Next()
//	form := url.Values{"nonce": {strconv.FormatInt(nonce, 10)}}
//	path := kraken.Path(core.ClassPrivate, core.EndpointBalance)
//	sig := kraken.Sign(path, strconv.FormatInt(nonce, 10), form.Encode(), secret)
package kraken
