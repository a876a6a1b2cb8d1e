// Package visualization renders samples for inspection: arrow and
// point overlays on raster-sized images, trajectory plots via gonum/plot
// and interactive scatter charts via go-echarts. Nothing here feeds
// back into sampling.
package visualization
