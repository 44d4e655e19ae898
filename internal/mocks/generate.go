package mocks

//go:generate mockery --name PickStore --srcpkg github.com/restocklab/restock-backend/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name PresetRepository --srcpkg github.com/restocklab/restock-backend/internal/core/report --output ./report --outpkg reportmocks --with-expecter
