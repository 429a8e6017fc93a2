// Package dataprocessing turns evaluation workbook exports into normalized
// question records.
//
// The export format is a fixed positional contract: each workbook carries one
// sheet per question, the sheet name encodes the question type and index, and
// rating sheets keep the average, respondent count and answer distribution at
// fixed column positions. Extraction is deliberately forgiving at the row
// level (bad rows are skipped, never fatal) and isolates failures at sheet
// and file granularity so one malformed workbook cannot sink a batch.
package dataprocessing
