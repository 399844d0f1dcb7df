/*
Package results persists linked mentions for downstream analysis.

Two writers share one Writer interface: ParquetWriter buffers rows and
emits one Parquet part file per Flush, and JSONLWriter streams one JSON
object per mention. Rows carry the run id and the ranking/linking method
tags so prediction files from different configurations can be compared
side by side.
*/
package results
