/*
Package domain contains the core value types of the Artisan solver.

It defines the process state that the simulator advances, the configuration a
caller supplies, the solve result and the events emitted while searching. The
package is kept pure and free of I/O so that the simulator, the search engine
and every adapter share one vocabulary.

# Key Entities

  - State: the snapshot of a process (durability, CP, progress, quality, effects, combo, condition).
  - Settings: the immutable process configuration (targets, budgets, stat multipliers).
  - ActionID / ActionMask / Macro: identities of catalog actions and sequences of them.
  - Result: the best macro found, its simulated terminal state and its score.
  - LifecycleHooks: callbacks observing improvements, progress and phases of a solve.
*/
package domain
