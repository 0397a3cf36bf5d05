// Package password hashes and compares user passwords.
//
// [Bcrypt] is the default and reads hashes written by most admin
// backends ($2a$/$2b$). [Argon2] writes PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Auto] picks the comparator from the stored hash prefix.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext and receive hashes.
//   - Import any other goAdmin package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
