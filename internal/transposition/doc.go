// Package transposition searches for plaintext candidates of a fixed-width
// columnar transposition cipher.
//
// Ciphertext of length L is written column-major into every rows x cols grid
// with rows*cols = L, and each grid is read back row by row under candidate
// column orders. Small grids (up to seven columns by default) are searched
// exhaustively; wider grids are sampled, always including the identity order.
// Every reading is scored against English bigram, trigram and doubled-letter
// tables, the best readings per dimension are merged, and a relative score
// window selects the final candidate list.
//
// Search is synchronous and CPU bound. Use [Solve] for the full pipeline,
// [SolveDimension] for one grid, and [Decrypt] / [Encrypt] for a known key.
package transposition
