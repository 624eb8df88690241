package storage

import (
	"toolrent-cli/availability"
)

// LoadLocalCache reads the optimistic reservation cache. A missing file is an empty cache.
func LoadLocalCache() (availability.LocalCache, error) {
	path, err := BlockedRangesPath()
	if err != nil {
		return nil, err
	}
	cache := availability.LocalCache{}
	if _, err := readJSON(path, &cache); err != nil {
		return availability.LocalCache{}, err
	}
	if cache == nil {
		cache = availability.LocalCache{}
	}
	return cache, nil
}

func SaveLocalCache(cache availability.LocalCache) error {
	path, err := BlockedRangesPath()
	if err != nil {
		return err
	}
	if cache == nil {
		cache = availability.LocalCache{}
	}
	return writeJSON(path, cache, 0o644)
}

func ClearLocalCache() error {
	path, err := BlockedRangesPath()
	if err != nil {
		return err
	}
	return removeFile(path)
}
