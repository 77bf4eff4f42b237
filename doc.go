// Package finbrick provides a deterministic projection engine for personal
// finance scenarios. A scenario is a collection of financial bricks (assets,
// liabilities, flows and transfers) simulated month by month over a shared
// timeline.
//
// The core functionalities include:
//   - Double-Entry Journal: every simulated money movement is recorded as a
//     balanced journal entry against a registry of typed accounts, so the
//     accounting identity (assets minus liabilities equals equity) holds at
//     every month of the projection.
//   - Brick Catalog: each brick carries a kind (cash, property, mortgage,
//     recurring income, ...) resolved to a simulation strategy through an
//     injected catalog, making the set of supported kinds extensible without
//     touching the engine.
//   - Scenario Execution: bricks are expanded, ordered by their declared
//     links, masked by their activation windows and simulated in a single
//     deterministic pass; re-running the same scenario yields byte-identical
//     results.
//   - Post-Run Validation: structural checks (identities, liquidity,
//     amortization completeness) run against a finished projection and report
//     or fail depending on the configured mode.
//
// This package serves as the foundational logic for the `fbx` command-line
// tool.
package finbrick
