package common

// File permissions for everything dwhctl writes. dwh.cfg and the credential
// store hold secrets, so both stay owner-only.
const (
	FilePermissionSecure = 0600
	DirPermissionSecure  = 0700
)
