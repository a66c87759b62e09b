package main

import (
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// Every command ends by dumping its result map as indented json on stdout;
// progress goes through the log so the json stays machine-readable.
func PrintJson(obj interface{}) {
	rawjson, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		log.Fatalln("Couldn't serialize json: ", err)
	}
	fmt.Println(string(rawjson))
}

// Local-time timestamp safe to embed in generated filenames.
func FileSafeDateTime() string {
	return time.Now().Format("20060102-150405")
}
