// Package gatedcontent implements a publishing pipeline for monetized video
// content: an owner uploads a video binary, attaches display metadata (title,
// blur level, unlock call-to-action, price), and publishes it behind an
// opaque public link that anonymous viewers can resolve without an account.
//
// The pipeline is built from narrow, swappable collaborators: a BlobStore
// places binaries (memory, filesystem and S3 backends are provided under
// storage/), a Repository persists content records (memory and Postgres under
// repo/), and the Service drives each upload through an explicit session
// state machine with byte-level progress reporting and cooperative
// cancellation. Identity is supplied by the caller; this package performs no
// authentication of its own, only ownership scoping.
package gatedcontent
