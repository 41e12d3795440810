// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package engine ranks catalog items against free-text job descriptions.
//
// At construction the engine embeds the search text of every catalog item,
// in batches, into an L2-normalized matrix. A recommendation embeds the query,
// scores every item by cosine similarity and applies the experience level and
// category filters before thresholding.
//
// When too few items pass the threshold the engine walks a fallback ladder:
//
//  1. one relaxed pass with the threshold lowered to core.RelaxedMinScore
//  2. keyword matching of the first query tokens against the whole catalog
//  3. the filtered items ranked by raw score, whatever their score
//
// The rung that produced the items is reported in core.Result.Stage.
// Failures while serving a query are recovered into a core.StageFailed
// result; only invalid queries are returned as errors.
//
// Example usage:
//
//	eng, err := engine.New(ctx, cat, embedder, engine.WithBatchSize(32))
//	if err != nil {
//	    return err
//	}
//	defer eng.Close()
//
//	result, err := eng.Recommend(ctx, core.NewQuery("graduate data analyst",
//	    core.WithExperienceLevel("Graduate"),
//	    core.WithCategories("Cognitive"),
//	))
package engine
