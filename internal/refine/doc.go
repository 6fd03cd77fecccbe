// Package refine asks an external language oracle to add spacing and
// punctuation to the best decryptions.
//
// Only the first TopN candidates are sent. Each suggestion must survive a
// similarity gate: after stripping everything but letters and digits and
// uppercasing, at least Similarity of the positions must match the original
// decryption. Outcomes are cached by decrypted text so a repeated solve does
// not call the oracle again. Every failure degrades to the raw decryption;
// Refine never returns an error.
package refine
