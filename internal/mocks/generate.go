package mocks

//go:generate mockery --name Gateway --srcpkg github.com/trunkstore-lab/trunkstore/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name Pipeline --srcpkg github.com/trunkstore-lab/trunkstore/internal/ingestion --output ./ingestion --outpkg ingestionmocks --with-expecter
//go:generate mockery --name Pipeline --srcpkg github.com/trunkstore-lab/trunkstore/internal/feed/redisstream --output ./feed --outpkg feedmocks --with-expecter
