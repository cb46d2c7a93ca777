// Package backupcode issues and verifies single-use recovery codes.
//
// Plaintext codes are returned once from Generate and never stored; accounts keep only the
// SHA-256 hex digest produced by Hash. Verify normalizes the submitted code (trimmed, uppercased)
// and reports the index of the matching digest so the caller can Consume it.
//
//	codes, _ := backupcode.Generate(backupcode.DefaultCount)
//	hashes := backupcode.HashAll(codes)
//
//	res, err := backupcode.VerifyAvailable(input, hashes)
//	if err == nil && res.Valid {
//	    hashes, _ = backupcode.Consume(hashes, res.Index)
//	}
package backupcode
