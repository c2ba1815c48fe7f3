// Package analysis extracts time series from recorded frames and
// characterizes them.
//
//   - [ParticleSeries], [EnergySeries], [CentroidSeries]: per-frame series
//   - [Summarize]: mean, deviation and range of a series
//   - [PowerSpectrum], [DominantFrequency]: oscillation content
//   - [PathToASCII]: character plot of a particle path
//
// # Example
//
//	ys, _ := analysis.ParticleSeries(frames, 0, analysis.PosY)
//	hz, _ := analysis.DominantFrequency(ys, analysis.SampleInterval(frames))
package analysis
