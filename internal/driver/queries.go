package driver

import (
	"fmt"
	"strings"
)

const (
	CreateRecordLookupIndexQuery = `
		CREATE INDEX record_lookup IF NOT EXISTS
		FOR (n:Record) ON (n.namespace, n.id)
	`

	UpsertRecordsQuery = `
		UNWIND $records AS r
		MERGE (n:Record {namespace: $namespace, id: r.id})
		ON CREATE SET n.created_at = datetime()
		SET n.title = r.title,
			n.description = r.description,
			n.embedding = r.embedding,
			n.updated_at = datetime()
		RETURN count(n) AS upserted
	`

	UpdateRecordQuery = `
		MATCH (n:Record {namespace: $namespace, id: $id})
		SET n.title = $title,
			n.description = $description,
			n.embedding = $embedding,
			n.updated_at = datetime()
		RETURN n.id AS id
	`

	FetchRecordsQuery = `
		MATCH (n:Record {namespace: $namespace})
		WHERE n.id IN $ids
		RETURN n.id AS id, n.title AS title, n.description AS description, n.embedding AS embedding
	`

	// Over-fetches by $candidates since the namespace filter runs after the
	// index lookup.
	QueryRecordsQuery = `
		CALL db.index.vector.queryNodes($index_name, $candidates, $embedding)
		YIELD node, score
		WHERE node.namespace = $namespace
		RETURN node.id AS id, node.title AS title, node.description AS description,
			node.embedding AS embedding, score
		ORDER BY score DESC, id ASC
		LIMIT $top_k
	`

	ListRecordsQuery = `
		MATCH (n:Record {namespace: $namespace})
		WHERE n.id > $cursor
		RETURN n.id AS id, n.title AS title, n.description AS description, n.embedding AS embedding
		ORDER BY n.id
		LIMIT $limit
	`

	DeleteRecordsQuery = `
		MATCH (n:Record {namespace: $namespace})
		WHERE n.id IN $ids
		DETACH DELETE n
	`
)

// VectorIndexQuery renders the CREATE VECTOR INDEX statement. Index options
// cannot be parameterised in Cypher.
func VectorIndexQuery(idx VectorIndex) string {
	name := strings.ReplaceAll(idx.Name, "`", "")
	return fmt.Sprintf("CREATE VECTOR INDEX `%s` IF NOT EXISTS FOR (n:Record) ON (n.embedding) "+
		"OPTIONS {indexConfig: {`vector.dimensions`: %d, `vector.similarity_function`: '%s'}}",
		name, idx.Dimension, similarity(idx.Similarity))
}

func similarity(metric string) string {
	if strings.EqualFold(metric, "euclidean") {
		return "euclidean"
	}
	return "cosine"
}
