// Package dataprocessing implements the transform stages of the retail
// pipeline: cleaning raw extract rows into validated records, enriching them
// with derived fields, and building the four gold aggregate reports.
//
// Cleaning rules are independent predicates conjoined with AND; a row is
// dropped if any rule rejects it, and reordering the rules does not change
// the surviving set. Report builders are pure functions over an immutable
// record slice and are safe to run concurrently.
package dataprocessing
