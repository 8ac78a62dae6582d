// Package naming maps input image paths to output paths and keeps output
// paths unique within one planning run.
//
//   - OutputPath: in-place returns the input; otherwise the input's location
//     relative to the base is re-rooted under the output directory, falling
//     back to the bare file name when the input lies outside the base.
//   - CollisionResolver: owner map of claimed output paths; later claimants
//     get a " - dupN" stem suffix.
package naming
