// Command artisan-lambda serves the solver behind an AWS Lambda function URL.
package main

import (
	"github.com/aretw0/artisan"
	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	h := &handler{solver: artisan.New()}
	lambda.Start(h.Handle)
}
