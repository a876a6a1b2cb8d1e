// Package sampling extracts fixed-length temporal samples from a scene:
// it selects history and future frame windows around a centre frame,
// resolves the sampled entity in each frame, and assembles padded
// position/yaw/extent arrays with availability masks, relative to the
// entity's pose at the centre frame.
//
// Builder.Build is stateless and safe to call from many goroutines on
// the same dataset. Runner parallelises across centre indices.
package sampling
