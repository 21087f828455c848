// Package analyzer infers a schema from a sample of JSON records and decides
// whether the data fits a relational table or a document collection.
//
// Analysis is a pure function of its input:
//
//	res, err := analyzer.Analyze(data, analyzer.WithMaxSample(50))
//	if err != nil {
//		return err
//	}
//	if res.Relational() {
//		fmt.Println(res.CreateTableSQL)
//	}
//
// Records are sampled from a top-level array, an object keyed by identifier,
// or a single object. Each object record is flattened to dot-joined field
// paths, the per-path types are unified across the sample, and top-level key
// consistency plus nesting depth drive the classification.
//
// Decoding keeps object key order, so field and column order follow the
// document. Only *ParseError and *UnsupportedStructureError are returned.
package analyzer
