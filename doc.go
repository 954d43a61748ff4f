// Package phonebook implements a contact-management API with per-account
// authentication: credential storage, bearer-token issuance and revocation,
// an email-verification flow, and an avatar-ingestion pipeline.
//
// Sessions:
//   - A login issues a signed bearer token and stores it on the user record.
//     The session guard compares the presented token against the stored value,
//     so issuing a new token (or logging out) revokes every prior token even
//     while it is still cryptographically valid.
//
// Verification:
//   - Users are created unverified with a single-use verification token. The
//     confirm step is a single update-if-matches statement, which makes a
//     concurrent double-confirm resolve to exactly one winner.
//
// Avatars:
//   - Uploads are staged in a temporary location, decoded, resized, and moved
//     into the public avatars directory. A failure after staging removes the
//     staged file before the error propagates.
package phonebook
