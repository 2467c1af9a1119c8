package postgres

// RepositoryConfig holds configuration for repository batch operations.
// Batch sizes affect performance and memory usage when seeding or
// refreshing large catalogs.
type RepositoryConfig struct {
	// ProductBatchSize controls the number of product records processed in a
	// single database operation.
	// Default: 500
	ProductBatchSize int
}

// DefaultRepositoryConfig returns a RepositoryConfig with sensible defaults.
// Defaults stay well below PostgreSQL's parameter limit (~32k parameters)
// while keeping round trips low for catalog-sized batches.
func DefaultRepositoryConfig() RepositoryConfig {
	return RepositoryConfig{
		// 500 products * 4 params = 2000 parameters per batch
		ProductBatchSize: 500,
	}
}
