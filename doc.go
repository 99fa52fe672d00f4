// Package colgo provides an embedded in-memory columnar analytical store for Go.
//
// Colgo keeps tables as typed column arrays with null tracking, dictionary
// encoding for strings and roaring-bitmap indexes, and answers analytical
// queries (conjunctive filters, grouping, aggregation, ordering, limiting)
// directly against that columnar representation.
//
// # Quick Start
//
//	db := colgo.New()
//	_ = db.CreateTable("events", []schema.Column{
//	    {Name: "user", Type: schema.TypeString, Indexed: true},
//	    {Name: "amount", Type: schema.TypeInt64},
//	    {Name: "note", Type: schema.TypeString, Nullable: true},
//	})
//	_ = db.Append("events", value.String("alice"), value.Int64(42), value.Null())
//
//	res, _ := db.Query(query.New("events").
//	    Where("user", query.OpEqual, value.String("alice")).
//	    GroupBy("user").
//	    Aggregate("total", query.AggSum, "amount").
//	    Build())
//
// # Concurrency Model
//
// Each table owns one reader-writer lock. Queries hold it shared for the
// whole filter → group → aggregate → sort → limit pipeline and therefore see
// a single consistent snapshot; row and batch appends hold it exclusively.
// Tables are fully independent of each other.
//
// # Distribution
//
// Aggregate states are merge-friendly: AVG is carried as a (sum, count)
// pair, so a coordinating layer can run Query → ExecutePartial on every
// shard, merge the partials and finalize once. The codec package wraps
// results and partials in self-describing, optionally compressed envelopes
// for the wire.
//
// # Key Features
//
//   - Dense typed column arrays with geometric growth
//   - Dictionary-encoded strings (distinct values stored once)
//   - Roaring-bitmap equality indexes with range search
//   - Bulk loading with deferred index rebuild (ingest package)
//   - Mergeable partial aggregates for scatter-gather execution
package colgo
