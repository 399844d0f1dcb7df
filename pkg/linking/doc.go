/*
Package linking turns candidate sets into final predictions.

A Disambiguator is constructed with one decision strategy selected through
the closed Method enumeration:

  - MethodMostPopular re-normalizes raw gazetteer counts across all
    matched variants and picks the most frequent identifier (the
    frequency baseline).
  - MethodByDistance re-scores candidates by inverse haversine distance
    to the document's place of publication (the distance baseline).
  - MethodDelegated adapts mentions with sentence context into the
    externally trained scorer's batched input and maps its label
    predictions back into identifier space through the cross-reference
    store.

Every strategy yields a Prediction carrying an identifier (or the NIL
sentinel), a confidence in [0, 1] and the full re-normalized candidate
distribution. Strategies are swappable without caller changes; mentions
with no usable candidates resolve to NIL rather than an error.
*/
package linking
