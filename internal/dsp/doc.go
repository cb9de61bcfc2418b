// Package dsp implements the signal processing chain applied to sample
// blocks: DC bias removal, Butterworth low-pass smoothing, block statistics
// (RMS, peak, spectral energy split) and an FFT magnitude spectrum.
package dsp
