// Package storage manages the on-disk output of the crawler.
//
// Every aircraft owns one directory under the output root, named
// {icao}_{model}_{type}_{nationality}. Whether that directory exists decides
// if an aircraft is new (crawled from the epoch) or resumed (crawled from the
// global checkpoint). Each successfully parsed day becomes one workbook in
// that directory:
//
//	Sheet1  icao | reg | type | time_local | time_stamp   (one row)
//	Sheet2  Time | Latitude | Longitude | Altitude | Speed | Track | Geom_Rate
//
// Units are written to a temporary file and renamed into place, so rewriting
// a day replaces the previous unit. Values the source reported as null are
// stored as blank cells.
//
// Usage:
//
//	manager, err := storage.NewManager("track_data", dates.Epoch, log)
//	if err != nil {
//	    return err
//	}
//	window, err := manager.Resolve(aircraft, checkpoint, today)
//	...
//	path, err := manager.Persist(aircraft, record)
package storage
