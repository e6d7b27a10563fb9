// Package model is the boundary between prepared feature tables and a
// classifier. It ships a baseline that imputes and one-hot encodes
// categorical features, imputes and row-normalizes numeric features, and fits
// an L2-regularised logistic regression by full-batch gradient descent.
//
// Fitting is deterministic: weights start at zero and rows are visited in
// order, so the same training table always yields the same predictions.
package model
