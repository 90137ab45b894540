package main

import (
	"log"
	"os"
	"strconv"

	"github.com/NickNoot/Jogo-da-Vida/worker"
)

func main() {
	if len(os.Args) != 3 {
		log.Fatalf("Usage: %s <master-host> <master-port>", os.Args[0])
	}
	host := os.Args[1]
	port, err := strconv.Atoi(os.Args[2])
	if err != nil {
		log.Fatalf("Master port must be a number, got %q", os.Args[2])
	}

	w, err := worker.Dial(host, port)
	if err != nil {
		log.Fatal(err)
	}
	if err := w.Run(); err != nil {
		log.Fatal(err)
	}
}
