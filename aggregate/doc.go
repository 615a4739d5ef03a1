// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package aggregate maintains the cached axis scores stored on each icon.

An icon's scores are a pure function of its accepted, active answers and the
active questions they answer, so recomputing is idempotent and concurrent
recomputes for the same icon are harmless:

	icon, err := agg.RecomputeScores(ctx, iconID)

Icon scoring uses each question's single weight (scoring.SingleWeight),
unlike the quiz path which splits agree and disagree weights.

RecomputeForQuestion refreshes the icons affected by an edited question and
RecomputeAll sweeps every active icon with bounded concurrency.
*/
package aggregate
