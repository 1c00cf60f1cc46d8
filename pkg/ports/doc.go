/*
Package ports defines the driven ports (interfaces) around the solver.

The search core performs no I/O. These interfaces let hosts cache solved
macros and coordinate concurrent solves without coupling the core to a
storage backend.

# Key Interfaces

  - MacroStore: persists solved macros keyed by a settings fingerprint.
  - DistributedLocker: provides distributed locking so replicas do not solve the same key twice.
*/
package ports
