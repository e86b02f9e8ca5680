/*
Package sync pushes local directory trees to a remote store.

A push is a plain mirror: the remote destination directory and every
directory underneath it are created if they're missing, and every local file
is uploaded, replacing whatever is at the same remote path. Nothing is
compared first and nothing is deleted, so every push transfers the whole tree.

Pushes run on the calling goroutine, one directory or file at a time, in the
order the local walk visits them. The first error stops the push. Directories
created and files uploaded before the error are left in place.
*/
package sync
