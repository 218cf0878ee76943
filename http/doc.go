// Package http provides the JSON response helpers used by the built-in
// HTTP components.
//
//	res := gohttp.NewResponse(w)
//
//	res.JSON(200, data)       // raw JSON with status
//	res.Success(data)         // 200 {"data": ...}
//	res.Error(400, "bad")     // {"message": "bad"}
//	res.NotFound()            // 404 {"message": "Not found."}
//	res.ServerError()         // 500 {"message": "Server Error."}
//
// Fail maps lookup errors to status codes, so a handler that resolves a
// component can forward the error unchanged:
//
//	v, err := c.Get(t, qualifier)
//	if err != nil {
//	    res.Fail(err) // 404 missing, 409 ambiguous, 503 closed
//	    return
//	}
package http
