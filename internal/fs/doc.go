// Package fs abstracts the filesystem operations used by the local entry
// store, primarily for testability.
//
//   - [LocalFS]: production implementation over the standard os package
//   - [FaultyFS]: test utility that injects write failures
//
// Production code uses fs.Default (a [LocalFS]). Filesystem operations take
// no context; they are fast and non-interruptible at the syscall level. Slow
// remote backends live behind the entry store interface, which has context
// support.
package fs
