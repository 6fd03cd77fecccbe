// Colsolve is a command-line solver for columnar transposition ciphers.
//
// It factors the ciphertext length into every rectangular grid shape,
// searches column orders for each shape, ranks the readings by English
// n-gram evidence and can ask a language model to restore word spacing on
// the best few.
//
// Usage:
//
//	colsolve solve TEHTAHNEDTAH          # rank candidate plaintexts
//	echo "..." | colsolve solve          # read ciphertext from stdin
//	colsolve dimensions --length 12      # list grid shapes
//	colsolve decode --rows 3 --order 2,0,1,3 CIPHERTEXT
//	colsolve serve --addr :8080          # HTTP API
package main
